// Package checks holds the named browser checks sitewait can run against
// the Swag Labs demo store.
//
// Each check is a [Func] that drives a driver.Driver through one user
// journey and reports the outcome as an error. Checks register themselves
// by kind; [Lookup] and [All] expose the registry to the runner and the
// CLI. [Classify] turns a check's error into a pass, fail or error status.
//
// Every wait inside a check goes through sitewait.Poll with the PollConfig
// carried in [Env], so a job's configured timeout, poll interval and
// ignored failure kinds apply uniformly.
package checks
