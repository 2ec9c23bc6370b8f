package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhysicians_HonorificPass(t *testing.T) {
	names := Physicians("Our practice is led by Dr. Jane Smith and Doctor Robert Jones.")
	assert.Equal(t, []string{"Jane Smith", "Robert Jones"}, names)
}

func TestPhysicians_CredentialPass(t *testing.T) {
	names := Physicians("Founded by Maria Garcia, M.D. and Tom Lee D.O. in 2019.")
	assert.Contains(t, names, "Maria Garcia")
	assert.Contains(t, names, "Tom Lee")
}

func TestPhysicians_MergedAndDeduped(t *testing.T) {
	text := "Dr. Jane Smith sees patients daily. Jane Smith, M.D. graduated from UIC."
	names := Physicians(text)
	assert.Equal(t, []string{"Jane Smith"}, names)
}

func TestPhysicians_SingleTokenRejected(t *testing.T) {
	// Sentence starts that look like credential-suffixed names.
	names := Physicians("Visit our MD office today.")
	assert.Empty(t, names)
}

func TestPhysicians_Empty(t *testing.T) {
	assert.Nil(t, Physicians(""))
	assert.Empty(t, Physicians("No doctors mentioned here."))
}
