// Package mapping provides the mapping file schema, parsing and validation.
//
// A mapping file declares which spreadsheets to read and, per worksheet, how
// each row becomes a record: its key, its attributes, method calls made on it
// and its associations to records of other worksheets.
//
// # Schema Overview
//
//	version: "1"
//	namespace: blog               # optional, qualifies record types
//	spreadsheets:
//	  - title: Blog
//	    worksheets:
//	      - title: Authors
//	        key: {builder: name, from: [first, middle, last]}
//	        key_to: slug
//	        attributes:
//	          - first
//	          - {name: bio, markdown: true}
//	      - title: Posts
//	        key: title
//	        map_to_class: Article
//	        calls:
//	          - {name: tags, methods: tag_list.add, builder: multi}
//	        associations:
//	          - {name: author, singular: true, required: true}
//	          - {name: category, builder: multi, optional: true}
//	          - name: [Author, Post]
//	            polymorphic: {type_field: kind, association_field: ref}
//	          - name: tag
//	            builder: multi
//	            through: {class: Tagging, attributes: {weight: 1}}
//	types:                        # optional shapes for declared types
//	  - {name: Article, singular: [author], collections: [categories]}
//
// Files ending in .json or .jsonc use the same schema in JSON, with comments
// and trailing commas allowed.
//
// Field names (key fields, call names, association sources) are normalized on
// load so they match normalized row headers. Attribute names are kept as
// written because they name record attributes.
package mapping
