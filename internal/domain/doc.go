// Package domain contains shared domain types used across entity sub-packages.
// Entity-specific types live in sub-packages (domain/lead, domain/deal,
// domain/workflow, ...). This root package holds sentinel errors, validation
// types, and the Signal type that flows through the in-process bus.
package domain
