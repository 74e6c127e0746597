// Package session implements the administrator's multi-step editing
// workflows: adding rules and templates, editing single values, setting
// channels and the album cover, and confirming a reset.
//
// A workflow starts with Machine.Begin and a Scratch value naming it.
// Text replies go to Machine.Input, field choices to ToggleField or
// SelectField, and Save commits the draft to the shared configuration:
//
//	m := session.NewMachine(adminID, store, manager, resetFn)
//	_, _ = m.Begin(ctx, adminID, &session.FooterDraft{})
//	_, _ = m.Input(ctx, adminID, "year")     // name
//	_, _ = m.Input(ctx, adminID, " (2025)")  // text
//	_, _ = m.ToggleField(ctx, adminID, model.FieldAlbum)
//	out, err := m.Save(ctx, adminID)
//
// Records live in a Store: MemoryStore for a single process or RedisStore
// to survive restarts. Both drop records that were not touched for the
// configured TTL.
package session
