package persistence_test

import (
	"os"
	"testing"

	"waypoint/persistence"

	. "github.com/onsi/gomega"
)

func TestParseDatabaseConfigFromEnv(t *testing.T) {
	RegisterTestingT(t)
	defer os.Unsetenv("DB_DRIVER_TYPE")
	defer os.Unsetenv("DB_DRIVER_ARGS")

	t.Run("should fail when driver args is missing", func(t *testing.T) {
		os.Unsetenv("DB_DRIVER_ARGS")
		c, err := persistence.ParseDatabaseConfigFromEnv()
		Expect(c).To(BeNil())
		Expect(err).To(MatchError("DB_DRIVER_ARGS is required"))
	})

	t.Run("should default driver type to mysql", func(t *testing.T) {
		os.Unsetenv("DB_DRIVER_TYPE")
		os.Setenv("DB_DRIVER_ARGS", "root:root@(127.0.0.1:3306)/waypoint")
		c, err := persistence.ParseDatabaseConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(*c).To(Equal(persistence.DatabaseConfig{DriverType: "mysql", DriverArgs: "root:root@(127.0.0.1:3306)/waypoint"}))
	})
}

func TestPrepareMysqlDatabase(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should reject dsn without database name", func(t *testing.T) {
		Expect(persistence.PrepareMysqlDatabase("root:root@(127.0.0.1:3306)/")).To(MatchError("database name is missing in dsn"))
	})
}
