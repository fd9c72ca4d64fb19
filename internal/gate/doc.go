// Package gate is the single checkpoint between signal producers and the
// display topics. Every signal, news analysis, and fusion plan passes
// through it: records that satisfy the schema rules are published along
// with a validated audit event; records that fail are kept off the topic
// and the failure is audited instead.
package gate
