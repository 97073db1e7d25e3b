// Package errors provides the classified error primitives used across pagebuilder.
//
// Every failure a page build can produce is a ClassifiedError with a category
// (parse, render, link_integrity, config, ...), a severity and structured context
// such as the source file, line and anchor. Errors are created through the fluent
// ErrorBuilder:
//
//	err := errors.ParseError("unmatched code fence").
//		WithContext(errors.KeyFile, "guide.md").
//		WithContext(errors.KeyLine, 12).
//		Build()
//
// A batch never stops at the first page failure; errors are accumulated in a
// Collector and presented at the end through the CLI or HTTP adapters.
package errors
