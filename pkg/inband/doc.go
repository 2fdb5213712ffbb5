// Package inband implements the in-band tool invocation protocol: a model
// emits free-form narrative text interleaved with delimited blocks, each
// block carrying one JSON-encoded tool invocation.
//
// A block looks like:
//
//	<tool_call>
//	{"tool": "search", "query": "dinosaurs"}
//	</tool_call>
//
// The package provides three entry points:
//
//   - [Decode] turns one captured block body into an [Invocation].
//   - [Parser] consumes arbitrarily-sized text chunks of one stream and
//     separates narrative text from completed invocations.
//   - [Split] decomposes one complete text into an ordered sequence of
//     text and tool-call segments.
//
// Malformed blocks are dropped silently: they contribute neither an
// invocation nor any characters to the narrative output. The narrative
// channel never shows raw protocol syntax.
package inband
