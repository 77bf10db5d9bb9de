// Package frame models the execution contexts the embed runtime hands
// to third-party embeds: one Context per sandboxed frame, grouped into
// a Family whose first frame is the designated master. The master
// hosts all state shared across siblings, including the coordinator's
// task table.
package frame
