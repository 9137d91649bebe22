package alohava

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryProfilesAndEntrypoints(t *testing.T) {
	d, _ := newTestDisplay(t)

	profiles := make([]Profile, d.MaxNumProfiles())
	n, err := d.QueryConfigProfiles(profiles)
	require.NoError(t, err)
	assert.Equal(t, []Profile{ProfileMPEG2Simple, ProfileH264Main}, profiles[:n])

	_, err = d.QueryConfigProfiles(make([]Profile, 1))
	requireStatus(t, ErrMaxNumExceeded, err)

	entrypoints := make([]Entrypoint, d.MaxNumEntrypoints())
	n, err = d.QueryConfigEntrypoints(ProfileH264Main, entrypoints)
	require.NoError(t, err)
	assert.Equal(t, []Entrypoint{EntrypointVLD, EntrypointEncSlice}, entrypoints[:n])

	_, err = d.QueryConfigEntrypoints(ProfileVC1Main, entrypoints)
	requireStatus(t, ErrUnsupportedProfile, err)
}

func TestGetConfigAttributes(t *testing.T) {
	d, _ := newTestDisplay(t)

	attribs := []ConfigAttrib{{Type: AttribRTFormat}, {Type: AttribRateControl}, {Type: AttribEncryption}}
	require.NoError(t, d.GetConfigAttributes(ProfileH264Main, EntrypointEncSlice, attribs))
	assert.Equal(t, uint32(RTFormatYUV420|RTFormatYUV422), attribs[0].Value)
	assert.Equal(t, uint32(RCCBR|RCVBR), attribs[1].Value)
	assert.Equal(t, uint32(AttribNotSupported), attribs[2].Value)

	err := d.GetConfigAttributes(ProfileMPEG2Simple, EntrypointEncSlice, attribs)
	requireStatus(t, ErrUnsupportedEntrypoint, err)
}

func TestCreateConfigDefaults(t *testing.T) {
	d, _ := newTestDisplay(t)

	id, err := d.CreateConfig(ProfileH264Main, EntrypointEncSlice, []ConfigAttrib{{AttribRateControl, RCVBR}})
	require.NoError(t, err)

	attribs := make([]ConfigAttrib, d.MaxNumConfigAttributes())
	p, e, n, err := d.QueryConfigAttributes(id, attribs)
	require.NoError(t, err)
	assert.Equal(t, ProfileH264Main, p)
	assert.Equal(t, EntrypointEncSlice, e)
	assert.Equal(t, []ConfigAttrib{
		{AttribRTFormat, RTFormatYUV420},
		{AttribRateControl, RCVBR},
	}, attribs[:n])

	_, _, _, err = d.QueryConfigAttributes(id, attribs[:1])
	requireStatus(t, ErrMaxNumExceeded, err)
}

func TestCreateConfigUnrecognizedAttribute(t *testing.T) {
	d, _ := newTestDisplay(t)

	id, err := d.CreateConfig(ProfileMPEG2Simple, EntrypointVLD, []ConfigAttrib{
		{AttribRTFormat, RTFormatYUV422},
		{AttribSpatialClipping, 1},
		{AttribSpatialClipping, 1},
	})
	require.NoError(t, err)

	attribs := make([]ConfigAttrib, d.MaxNumConfigAttributes())
	_, _, n, err := d.QueryConfigAttributes(id, attribs)
	require.NoError(t, err)
	assert.Equal(t, []ConfigAttrib{
		{AttribRTFormat, RTFormatYUV422},
		{AttribSpatialClipping, AttribNotSupported},
	}, attribs[:n])
}

func TestCreateConfigErrors(t *testing.T) {
	d, _ := newTestDisplay(t)

	_, err := d.CreateConfig(ProfileJPEGBaseline, EntrypointEncPicture, nil)
	requireStatus(t, ErrUnsupportedProfile, err)

	_, err = d.CreateConfig(ProfileMPEG2Simple, EntrypointEncSlice, nil)
	requireStatus(t, ErrUnsupportedEntrypoint, err)

	_, err = d.CreateConfig(ProfileMPEG2Simple, EntrypointVLD, []ConfigAttrib{{AttribRTFormat, RTFormatYUV444}})
	requireStatus(t, ErrUnsupportedRTFormat, err)

	_, err = d.CreateConfig(ProfileH264Main, EntrypointEncSlice, []ConfigAttrib{{AttribRateControl, RCNone}})
	requireStatus(t, ErrAttrNotSupported, err)

	var many []ConfigAttrib
	for i := 0; i < 20; i++ {
		many = append(many, ConfigAttrib{ConfigAttribType(100 + i), 1})
	}
	_, err = d.CreateConfig(ProfileMPEG2Simple, EntrypointVLD, many)
	requireStatus(t, ErrMaxNumExceeded, err)
}

func TestDestroyConfigInUse(t *testing.T) {
	d, _ := newTestDisplay(t)
	s := newDecode(t, d, 1)

	requireStatus(t, ErrInvalidConfig, d.DestroyConfig(s.config))
	require.NoError(t, d.DestroyContext(s.context))
	require.NoError(t, d.DestroyConfig(s.config))
	requireStatus(t, ErrInvalidConfig, d.DestroyConfig(s.config))
}
