package commands

import (
	"testing"

	"github.com/alan/repo-tracker/cmd"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestResolveSetting(t *testing.T) {
	assert.Equal(t, "a", ResolveSetting("a", "b", "c"))
	assert.Equal(t, "b", ResolveSetting("", "b", "c"))
	assert.Equal(t, "c", ResolveSetting("", "", "c"))
	assert.Equal(t, "", ResolveSetting("", "", ""))
}

func TestDatabase_Precedence(t *testing.T) {
	cfg := &cmd.Config{Database: "from-config.db"}

	assert.Equal(t, "from-flag.db", Database("from-flag.db", cfg))
	assert.Equal(t, "from-config.db", Database("", cfg))
	assert.Equal(t, cmd.DefaultDatabase, Database("", &cmd.Config{}))

	viper.Set("database", "from-env.db")
	defer viper.Reset()
	assert.Equal(t, "from-env.db", Database("", cfg))
}
