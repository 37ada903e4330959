// Package docsearch crawls a documentation site, keeps a keyword
// term-frequency index of its pages, and answers ranked keyword queries
// over that index.
//
// This package contains domain types, interfaces and the pure indexing
// logic following Ben Johnson's Standard Package Layout. Implementations
// live in subdirectories named after their primary dependency (e.g.
// postgres/, sqlite/, goquery/, http/).
package docsearch
