package account

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/h-uru/moula-authd/internal/netresult"
)

func TestCheckRestrictedLoginAllowsEveryoneWhenGateIsOff(t *testing.T) {
	assert.Equal(t, netresult.Success, CheckRestrictedLogin(0, false))
	assert.Equal(t, netresult.Success, CheckRestrictedLogin(uint32(FlagBanned), false))
}

func TestCheckRestrictedLoginAllowsAdminAndBetaWhenGateIsOn(t *testing.T) {
	assert.Equal(t, netresult.Success, CheckRestrictedLogin(uint32(FlagAdmin), true))
	assert.Equal(t, netresult.Success, CheckRestrictedLogin(uint32(FlagBetaTester), true))
}

func TestCheckRestrictedLoginDeniesPlainAccountsWhenGateIsOn(t *testing.T) {
	assert.NotEqual(t, netresult.Success, CheckRestrictedLogin(0, true))
	assert.NotEqual(t, netresult.Success, CheckRestrictedLogin(uint32(FlagBanned), true))
}

func TestNormalizeShapeIsCaseInsensitiveForMale(t *testing.T) {
	assert.Equal(t, "male", NormalizeShape("male"))
	assert.Equal(t, "male", NormalizeShape("Male"))
	assert.Equal(t, "male", NormalizeShape("MALE"))
}

func TestNormalizeShapeCollapsesEverythingElseToFemale(t *testing.T) {
	assert.Equal(t, "female", NormalizeShape("female"))
	assert.Equal(t, "female", NormalizeShape(""))
	assert.Equal(t, "female", NormalizeShape("bahro"))
}
