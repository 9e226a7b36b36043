// Package html extracts readable text from HTML pages.
//
// Page chrome (scripts, styles, navigation, headers, footers, forms and
// asides) is dropped. The main content container is preferred:
// div.main-content, then <main>, then <body>.
package html
