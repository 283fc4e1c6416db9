// Package core provides the business logic for SOSI document analysis.
//
// This package is the heart of the SOSI cleaner, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Service: The main entry point for all operations (ingest, analysis,
//     pivot, clean, selections).
//   - Dataset Registry: Decoded documents held in an in-memory LRU with TTL,
//     keyed by ingest ID.
//   - Ingest Pipeline: Asynchronous decode and analysis with progress
//     broadcast to subscribers.
//   - Ingest Limiter: A semaphore bounding concurrent ingests.
//
// # Ingest Pipeline
//
// Ingests run asynchronously so clients can follow progress. The flow is:
//
//  1. Client calls [Service.StartIngest] with the file name and raw bytes
//  2. The limiter admits the ingest or rejects it with [ErrTooManyIngests]
//  3. The pipeline detects the character set, decodes to UTF-8, and analyzes
//     the document, advancing through [IngestPhase] values
//  4. Progress is broadcast to subscribers via [Service.SubscribeProgress]
//  5. The finished [Dataset] lands in the registry under the ingest ID and
//     the [IngestResult] is retained for a few minutes
//
// # Dataset Registry
//
// Completed ingests become datasets held in an expirable LRU. A dataset keeps
// the decoded text, the character set decision, and the analysis. Datasets
// expire after the configured TTL or when the registry is full, so every
// dataset operation can return [ErrDatasetNotFound] and callers should be
// prepared to re-upload.
//
// # Analysis Operations
//
// All analysis operations run against a registered dataset:
//
//   - [Service.Preview] returns the first lines of the decoded text
//   - [Service.Analysis] returns feature, field, and theme statistics
//   - [Service.FieldFrequency] counts values of one field per category
//   - [Service.Pivot] cross-tabulates two fields, with numeric binning and
//     a result cache keyed by dataset and parameters
//   - [Service.CleanDataset] rewrites the document per a [sosi.Selection]
//     and re-encodes it in the original character set
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DS001: Dataset errors (expired or unknown datasets)
//   - ING001-ING006: Ingest errors (not found, busy, cancelled, timeouts)
//   - ENC001-ENC003: Encoding errors (unsupported or failing character sets)
//   - FILE001-FILE003: File errors (size, empty, missing)
//   - SEL001-SEL003: Selection errors (unknown, invalid name, bad payload)
//   - PIV001-PIV002, CLN001: Request parameter errors
package core
