// Package services contains the core business logic implementations.
//
// Services implement the driving ports and depend only on domain types
// and driven ports. Infrastructure (LLM adapters, SQLite stores, file
// normalisers) is injected at construction time.
//
// The central service is Generator, which runs the note pipeline:
// validate, detect language and subject, chunk each document, extract
// per chunk, synthesize once, and account token usage throughout.
package services
