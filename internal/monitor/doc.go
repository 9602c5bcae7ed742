// Package monitor wires the sitewait runner, result store and status server
// together.
//
// A [Monitor] is what the sitewait command builds from its configuration
// file: `sitewait serve` calls [Monitor.Start] and `sitewait run` calls
// [Monitor.RunOnce].
package monitor
