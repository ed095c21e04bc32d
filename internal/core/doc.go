// Package core implements the object model of the build kernel: the Context
// that roots a single invocation, the Project tree, Tasks with their typed
// Properties, and the Supplier abstraction that makes wiring an output of one
// task into an input of another both a value transport and a dependency
// declaration.
package core
