// Package domain contains the core business entities for EduPlan:
// documents, chunks, retrieval results, and lesson plans.
// It has no dependencies on adapters or external services.
package domain
