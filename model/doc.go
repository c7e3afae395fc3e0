// Package model defines the record types shared by all pipeline stages.
//
// A Record is the chat-format training example exchanged between the
// converter, quality filter, dedup index, validator and version store.
// A Raw is the loosely-typed record handed over by source providers
// before conversion.
package model
