// Package ingest loads tick data from CSV files onto the tick topic.
package ingest
