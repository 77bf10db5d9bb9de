/*
Package inject assembles the bootstrap document for an embed frame and
provides the script injection helpers embeds use inside it.

WriteScript writes a script tag synchronously into the head, the
equivalent of a markup write during document construction. LoadScript
creates the element asynchronously and queues a load callback; Flush
resolves the queue in write order, fetching each script and evaluating
it in the frame's sandbox before firing its callback. One failing load
never blocks the rest of the chain.

Embed-provided markup is sanitized before it enters the document.
*/
package inject
