// Package types defines the entity model of a time-tracking export (subjects,
// locations, tracker links, projects and issues, activities), the export
// envelope, the Destination and Source interfaces the import engine talks to,
// and the error types shared by every package.
package types
