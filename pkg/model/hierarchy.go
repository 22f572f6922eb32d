package model

// buildHierarchy performs the single pass over every non-shadow class
// def that derives both reverse adjacencies: a supertype's direct
// subclasses and an interface's direct implementers. It is invoked
// lazily and cached until the next AddDexFile invalidates it.
func (c *Context) buildHierarchy() {
	if c.subclassesOf != nil {
		return
	}
	subclasses := make(map[string][]string)
	implementers := make(map[string][]string)
	for descriptor, class := range c.Classes {
		if class.SuperDescriptor != "" {
			subclasses[class.SuperDescriptor] = append(subclasses[class.SuperDescriptor], descriptor)
		}
		for _, iface := range class.Interfaces {
			implementers[iface] = append(implementers[iface], descriptor)
		}
	}
	c.subclassesOf = subclasses
	c.implementersOf = implementers
}

// Subclasses returns the descriptors of every class whose
// super_class_idx names superDescriptor directly (not transitively).
func (c *Context) Subclasses(superDescriptor string) []string {
	c.buildHierarchy()
	return c.subclassesOf[superDescriptor]
}

// Implementers returns the descriptors of every class that directly
// lists ifaceDescriptor in its interfaces list.
func (c *Context) Implementers(ifaceDescriptor string) []string {
	c.buildHierarchy()
	return c.implementersOf[ifaceDescriptor]
}

// IsSubclassOf reports whether class is a (possibly transitive)
// subclass of ancestor, walking SuperDescriptor links through the
// context's known classes. A superclass outside the context (e.g. an
// Android framework class not present in the APK) ends the walk
// without a match.
func (c *Context) IsSubclassOf(classDescriptor, ancestorDescriptor string) bool {
	seen := map[string]bool{}
	cur := classDescriptor
	for {
		class, ok := c.Classes[cur]
		if !ok || seen[cur] {
			return false
		}
		seen[cur] = true
		if class.SuperDescriptor == ancestorDescriptor {
			return true
		}
		if class.SuperDescriptor == "" {
			return false
		}
		cur = class.SuperDescriptor
	}
}
