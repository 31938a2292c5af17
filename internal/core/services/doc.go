// Package services implements the application core: ingestion,
// retrieval, context assembly, and lesson plan generation.
package services
