// Package editorbuild drives the editor build: it checks the MSBuild installation, puts it on PATH,
// builds the engine solution for the debug and release configurations and hands the result to the
// packaging script.
//
// Commands are executed through the mvdan.cc/sh interpreter so that quoting and PATH lookup behave
// the same on every platform. Failures of the external tools are recorded in the returned Report but
// don't interrupt the sequence unless Options.Strict is set.
package editorbuild
