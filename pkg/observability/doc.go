/*
Package observability provides tools for monitoring qflip runs.

It turns the lifecycle hooks fired by an Experiment into Prometheus metrics and
structured log lines.
*/
package observability
