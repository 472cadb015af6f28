// Package tags implements the ${provider:param} template engine used to turn a
// preset into concrete encoder arguments.
package tags
