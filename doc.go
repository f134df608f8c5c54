// Package sasarrow converts fixed-layout row files into Arrow columnar
// batches in bounded memory.
//
// The pipeline is a push model: a source decoder reads rows and pushes
// them into a chunk accumulator, which converts each field by its
// semantic type and finalizes an immutable Arrow record batch every time
// the configured row threshold is reached. Finalized batches queue up in
// FIFO order, so a file of any size converts in memory proportional to
// one chunk plus the batches not yet consumed.
//
// # Architecture
//
//	decoder (pkg/decoder, pkg/decoder/fixedfile)
//	    pushes rows into
//	sink (pkg/sink), which converts via pkg/convert per pkg/schema
//	    and queues finalized batches in FIFO order for
//	reader (pkg/reader), offering bulk and streaming consumption,
//	    wrapped for foreign callers by
//	ffi (pkg/ffi) + cmd/libsasarrow, a C ABI with status codes
//
// # Quick Start
//
// Convert a file and walk its batches:
//
//	r, err := reader.Open("data.fxr", reader.WithChunkSize(65536))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	if err := r.ReadAll(); err != nil {
//	    return err
//	}
//	for _, b := range r.Batches() {
//	    process(b.Record)
//	}
//
// Or stream, keeping memory bounded:
//
//	for {
//	    more, err := r.ReadChunk()
//	    if err != nil {
//	        return err
//	    }
//	    for r.HasBatch() {
//	        b, _ := r.NextBatch()
//	        process(b.Record)
//	        b.Record.Release()
//	    }
//	    if !more {
//	        break
//	    }
//	}
//
// # Key Packages
//
//	pkg/schema    - Immutable column descriptor set and Arrow type mapping
//	pkg/convert   - Type-directed field-to-builder dispatch table
//	pkg/sink      - Chunk accumulator and FIFO batch queue
//	pkg/decoder   - Decoder push contract and format registry
//	pkg/reader    - Bulk and streaming consumption over a decoder
//	pkg/ffi       - Foreign-boundary handles, status codes, last-error
//	pkg/errors    - Structured error handling
//	pkg/logger    - Structured logging
//	pkg/metrics   - Conversion metrics
//
// # Foreign Boundary
//
// cmd/libsasarrow builds a C shared library over pkg/ffi. Every exported
// call returns a status code from a closed set, columnar data crosses
// zero-copy through the Arrow C Data Interface, and every allocation
// handed to the caller has exactly one matching free function.
package sasarrow
