package alohava

import (
	"github.com/pkg/errors"
)

// configObject is an immutable (profile, entrypoint, attributes) tuple.
type configObject struct {
	id         ConfigID
	profile    Profile
	entrypoint Entrypoint
	attribs    []ConfigAttrib

	// Number of live contexts created from this config.
	refs int
}

// value returns the resolved value of an attribute type.
func (c *configObject) value(t ConfigAttribType) uint32 {
	for _, a := range c.attribs {
		if a.Type == t {
			return a.Value
		}
	}
	return AttribNotSupported
}

type attribKey struct {
	profile    Profile
	entrypoint Entrypoint
}

func (d *Display) config(id ConfigID) (*configObject, error) {
	if c, ok := d.configs.Get(uint32(id)); ok {
		return c, nil
	}
	return nil, errors.Wrapf(ErrInvalidConfig, "%v", id)
}

// checkPair verifies that the driver offers the profile and entrypoint.
func (d *Display) checkPair(p Profile, e Entrypoint) error {
	if !containsProfile(d.drv.Profiles(), p) {
		return errors.Wrapf(ErrUnsupportedProfile, "profile %v", p)
	}
	for _, ep := range d.drv.Entrypoints(p) {
		if ep == e {
			return nil
		}
	}
	return errors.Wrapf(ErrUnsupportedEntrypoint, "entrypoint %v for profile %v", e, p)
}

func containsProfile(list []Profile, p Profile) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}

// attribTable returns the driver's attribute capabilities for a pair.
func (d *Display) attribTable(p Profile, e Entrypoint) []AttribCap {
	key := attribKey{p, e}
	if v, ok := d.attribs.Get(key); ok {
		return v.([]AttribCap)
	}
	caps := d.drv.Attributes(p, e)
	d.attribs.Add(key, caps)
	return caps
}

func findCap(caps []AttribCap, t ConfigAttribType) (AttribCap, bool) {
	for _, c := range caps {
		if c.Type == t {
			return c, true
		}
	}
	return AttribCap{}, false
}

// QueryConfigProfiles fills dst with the supported profiles and returns how
// many were written. dst must hold at least MaxNumProfiles entries.
func (d *Display) QueryConfigProfiles(dst []Profile) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return 0, err
	}
	profiles := d.drv.Profiles()
	if len(dst) < len(profiles) {
		return 0, errors.Wrapf(ErrMaxNumExceeded, "%d profiles, room for %d", len(profiles), len(dst))
	}
	return copy(dst, profiles), nil
}

// QueryConfigEntrypoints fills dst with the entrypoints of a profile.
func (d *Display) QueryConfigEntrypoints(p Profile, dst []Entrypoint) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return 0, err
	}
	if !containsProfile(d.drv.Profiles(), p) {
		return 0, errors.Wrapf(ErrUnsupportedProfile, "profile %v", p)
	}
	entrypoints := d.drv.Entrypoints(p)
	if len(dst) < len(entrypoints) {
		return 0, errors.Wrapf(ErrMaxNumExceeded, "%d entrypoints, room for %d", len(entrypoints), len(dst))
	}
	return copy(dst, entrypoints), nil
}

// GetConfigAttributes sets the Value of every element of attribs to the
// attribute bits the driver supports for the pair, or AttribNotSupported.
func (d *Display) GetConfigAttributes(p Profile, e Entrypoint, attribs []ConfigAttrib) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	if err := d.checkPair(p, e); err != nil {
		return err
	}
	caps := d.attribTable(p, e)
	for i := range attribs {
		if c, ok := findCap(caps, attribs[i].Type); ok {
			attribs[i].Value = c.Supported
		} else {
			attribs[i].Value = AttribNotSupported
		}
	}
	return nil
}

// resolveAttribs merges the requested attributes with the driver defaults.
// Every recognized type is present in the result; requested types the
// driver does not recognize resolve to AttribNotSupported.
func resolveAttribs(caps []AttribCap, requested []ConfigAttrib) ([]ConfigAttrib, error) {
	resolved := make([]ConfigAttrib, len(caps))
	for i, c := range caps {
		resolved[i] = ConfigAttrib{c.Type, c.Default}
	}
	var unknown []ConfigAttrib
outer:
	for _, a := range requested {
		c, ok := findCap(caps, a.Type)
		if !ok {
			for _, u := range unknown {
				if u.Type == a.Type {
					continue outer
				}
			}
			unknown = append(unknown, ConfigAttrib{a.Type, AttribNotSupported})
			continue
		}
		if a.Value == 0 || a.Value&^c.Supported != 0 {
			if a.Type == AttribRTFormat {
				return nil, errors.Wrapf(ErrUnsupportedRTFormat, "RT format %#x, supported %#x", a.Value, c.Supported)
			}
			return nil, errors.Wrapf(ErrAttrNotSupported, "%v value %#x, supported %#x", a.Type, a.Value, c.Supported)
		}
		for i := range resolved {
			if resolved[i].Type == a.Type {
				resolved[i].Value = a.Value
			}
		}
	}
	return append(resolved, unknown...), nil
}

// CreateConfig creates a config for a profile and entrypoint. Attributes not
// in attribs take the driver default.
func (d *Display) CreateConfig(p Profile, e Entrypoint, attribs []ConfigAttrib) (ConfigID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return ConfigID(InvalidID), err
	}
	if err := d.checkPair(p, e); err != nil {
		return ConfigID(InvalidID), err
	}
	resolved, err := resolveAttribs(d.attribTable(p, e), attribs)
	if err != nil {
		return ConfigID(InvalidID), err
	}
	if len(resolved) > maxConfigAttributes {
		return ConfigID(InvalidID), errors.Wrapf(ErrMaxNumExceeded, "%d attributes", len(resolved))
	}

	c := &configObject{profile: p, entrypoint: e, attribs: resolved}
	id, ok := d.configs.Insert(c)
	if !ok {
		return ConfigID(InvalidID), errors.Wrap(ErrAllocationFailed, "config table full")
	}
	c.id = ConfigID(id)
	log.Debug("Created %v: %v/%v %v", c.id, p, e, resolved)
	return c.id, nil
}

// DestroyConfig fails with ErrInvalidConfig while a context uses the config.
func (d *Display) DestroyConfig(id ConfigID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	c, err := d.config(id)
	if err != nil {
		return err
	}
	if c.refs > 0 {
		return errors.Wrapf(ErrInvalidConfig, "%v in use by %d contexts", id, c.refs)
	}
	d.configs.Remove(uint32(id))
	log.Debug("Destroyed %v", id)
	return nil
}

// QueryConfigAttributes returns the profile and entrypoint of a config and
// copies its resolved attributes into dst.
func (d *Display) QueryConfigAttributes(id ConfigID, dst []ConfigAttrib) (p Profile, e Entrypoint, n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err = d.check(); err != nil {
		return
	}
	c, err := d.config(id)
	if err != nil {
		return
	}
	if len(dst) < len(c.attribs) {
		err = errors.Wrapf(ErrMaxNumExceeded, "%d attributes, room for %d", len(c.attribs), len(dst))
		return
	}
	return c.profile, c.entrypoint, copy(dst, c.attribs), nil
}
