/*
Package dsl provides the fluent builder used to assemble arbor state machine definitions.

States are added below a building context that starts at the root. Transitions are
described by short chains that always end with Build, so no partial transition ever
leaks into the next chain. The first error stops the builder and is returned by
Definition or Machine.

Example usage:

	b := dsl.New[*Player]("player", "media player")
	b.Add("stopped", "nothing playing").IsInitial()
	b.Root().Add("playing", "playback").HasHistory(true)
	b.Add("normal", "normal speed").IsInitial()
	b.Up().Add("fast", "fast forward")

	b.In("stopped").On("play").To("playing", "start playback").Build()
	b.In("playing").On("stop").To("stopped", "stop playback").
		Execute(func(p *Player, _ domain.Event) error { return p.Rewind() }, "rewind").
		Build()
	b.In("normal").On("ff").To("fast", "speed up").Build()
	b.In("playing").OnLocal("tick", "advance position").
		Execute(func(p *Player, _ domain.Event) error { p.Position++; return nil }, "advance").
		Build()

	m, err := b.Machine("living-room", player)
	if err != nil {
		log.Fatal(err)
	}
	m.Fire(domain.Event{ID: "play"})
*/
package dsl
