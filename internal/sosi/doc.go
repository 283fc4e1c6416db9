// Package sosi implements the format engine for SOSI-style municipal
// infrastructure exports: charset detection and round-trip codec,
// line classification, aggregate analysis, frequency and pivot
// computation, and selective rewriting.
//
// The package is pure: no I/O, no logging, no shared mutable state.
// Every operation takes decoded text (or raw bytes, for the codec)
// and returns plain data, so callers in web handlers, CLI commands,
// or tests can invoke it concurrently without coordination.
//
// # Document grammar
//
// Documents are line oriented. A line's leading run of '.' markers
// encodes its role: exactly one marker followed by a letter opens a
// feature block (.PUNKT 1:, .KURVE 2:, .TEKST 3:, and the .HODE /
// .SLUTT framing), two or more markers carry an attribute at that
// nesting depth (..OBJTYPE Kum, ...P_TEMA KUM). Lines without markers
// hold geometry or other raw content and are never interpreted.
// Sections map to the two domain categories through a fixed table;
// anything unrecognized is classified unknown and passes through all
// operations untouched.
//
// # Typical flow
//
//	dec := sosi.Detect(raw)
//	text, err := sosi.Decode(raw, dec.Encoding)
//	if err != nil { ... }
//
//	stats := sosi.Analyze(text)
//	freq := sosi.FieldFrequency(text, sosi.CategoryPoints, "P_TEMA")
//	pivot := sosi.Pivot2D(text, sosi.CategoryPoints, "OBJTYPE", "DIM", sosi.DefaultPivotOptions())
//
//	cleaned := sosi.Clean(text, sel, sosi.FieldModeRemove)
//	out, err := sosi.Encode(cleaned, dec.Encoding)
//
// The same line classifier backs Analyze, FieldFrequency/Pivot2D, and
// Clean, so all three agree on block boundaries by construction.
package sosi
