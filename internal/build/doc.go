// Package build runs a batch: it discovers the source documents, builds every
// page in parallel and reports all collected errors once the batch is done.
//
// A batch has two parallel phases. The parse phase builds each document model
// and fills the link index; the page phase extracts navigation, renders,
// assembles, checks links and writes each page. The site navigation, chrome and
// link index are constructed before the page phase and only read during it.
// Errors never abort the batch; they are gathered in a Collector and returned
// in the Result.
package build
