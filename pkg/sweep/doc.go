/*
Package sweep drives a parameter sweep: it walks every configuration of a
space in order, resolves conditional overrides, names each case, and hands
it to a dispatcher, one run at a time.

A sweep moves through four states:

	idle -> running -> completed
	                -> aborted

Before the first dispatch the driver prepares every configuration once
(preflight). Any malformed configuration, unsafe value, missing template
field or, under the fatal selector policy, unresolved selector ends the sweep
in the aborted state with nothing dispatched.

After each run the result is reported and progress is saved before the
driver advances, so an interrupted sweep can be resumed from the first
configuration that has no reported result.
*/
package sweep
