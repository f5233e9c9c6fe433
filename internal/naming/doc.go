// Package naming turns spreadsheet text into keys and type names.
//
// Three spellings of the same thing flow through a load:
//
//   - keys and field names: "blog_post", produced by Normalize
//   - type names: "BlogPost", produced by ClassNameFromTitle and Camelize
//   - collection names: "blog_posts", produced by Pluralize
//
// The Resolver records per-source type overrides so that a title-derived
// type name and the configured one can be used interchangeably.
package naming
