package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	c.When("report-service").Needs("database").Give(func(container.Args) (any, error) {
//	    return NewReadReplica(), nil
//	})
type ContextualBuilder struct {
	container *Container
	building  string
	needs     string
}

// When starts a contextual binding chain: while the named binding is being
// built, a manifest dependency named by Needs is satisfied by the Give
// factory instead of the registry.
func (c *Container) When(key string) *ContextualBuilder {
	return &ContextualBuilder{container: c, building: key}
}

// Needs specifies which dependency key the override applies to.
func (b *ContextualBuilder) Needs(key string) *ContextualBuilder {
	b.needs = key
	return b
}

// Give installs the override factory. Contextual instances are built fresh
// on every use and bypass the lifetime caches of the overridden key.
func (b *ContextualBuilder) Give(factory FactoryFunc) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()

	building := b.container.canonical(b.building)
	if _, ok := b.container.contextual[building]; !ok {
		b.container.contextual[building] = make(map[string]FactoryFunc)
	}
	b.container.contextual[building][b.needs] = factory
}

// GiveValue is a shorthand for Give when the override is a scalar or
// pre-built instance.
//
//	c.When("report-service").Needs("storage-path").GiveValue("/tmp/reports")
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(func(Args) (any, error) { return value, nil })
}
