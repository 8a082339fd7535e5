// Package domain holds the story model: projects, the node graph, groups,
// assets and the events raised when they change.
package domain
