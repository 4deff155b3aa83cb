// Package tether is the Composition Root for the tether bridge core.
//
// It connects the dispatch logic (Domain Layer) with the infrastructure
// adapters (storage, scheduling, hardware drivers) using the Hexagonal
// Architecture pattern.
//
// Philosophy:
//
// Tether is the command bridge between a paired companion application
// and a wearable device's notification, alarm, and media-state
// subsystems. A transport layer (out of scope) delivers decoded
// messages; tether classifies each one, validates it, and applies
// exactly one state-changing effect, while guaranteeing the device's
// single-threaded run loop never crashes or hangs because of malformed
// input.
//
// Features:
//
//   - **Hexagonal Architecture**: Core dispatch logic is isolated from
//     storage and hardware details.
//   - **Error Containment**: Every handler failure becomes a transport
//     diagnostic plus a user-visible notification; nothing escapes the
//     dispatch boundary.
//   - **Admission Filtering**: Substring and glob filters keep noisy
//     notification sources off a small screen.
//   - **Default Adapters**: In-memory store, on-disk YAML spool, and a
//     timer-backed scheduler, all replaceable via `core` interfaces.
//
// Usage:
//
//	// Initialize the service with functional options
//	svc, err := tether.New(
//		tether.WithFilters("signal"),
//		tether.WithLogger(logger),
//	)
//
//	// Dispatch a decoded companion message
//	svc.Dispatch(ctx, map[string]any{"t": "notify", "id": 1, "title": "hi"})
package tether
