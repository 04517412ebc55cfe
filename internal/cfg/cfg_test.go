package cfg

import (
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_USER", "stock")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "catalog")
	t.Setenv("REMOTE_BASE_URL", "https://api.example.com/")
	t.Setenv("SYNC_BRANCH_ID", "branch-1")
	t.Setenv("KAFKA_BROKERS", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	c, err := Load(logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, "localhost", c.Db.Host)
	assert.Equal(t, "8080", c.Http.Port)
	assert.Equal(t, "https://api.example.com", c.Remote.BaseURL)
	assert.Equal(t, 10*time.Second, c.Remote.Timeout)
	assert.Equal(t, "branch-1", c.Sync.BranchID)
	assert.Equal(t, 500, c.Sync.ListLimit)
	assert.Equal(t, 3*time.Minute, c.Redis.PageTTL)
	assert.False(t, c.Kafka.Enabled())
	assert.Contains(t, c.Db.DSN(), "dbname=catalog")
}

func TestLoadKafkaBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	c, err := Load(logger.NewNopLogger())
	require.NoError(t, err)

	assert.True(t, c.Kafka.Enabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "catalog-sync-events", c.Kafka.Topic)
	assert.Equal(t, 1, c.Kafka.Partitions)
	assert.Equal(t, "tcp", c.Kafka.NetworkMode)
	assert.Equal(t, 30*time.Second, c.Kafka.PollInterval)
}

func TestLoadRequiresBranch(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNC_BRANCH_ID", " ")

	_, err := Load(logger.NewNopLogger())
	require.Error(t, err)
}

func TestLoadRejectsBadListLimit(t *testing.T) {
	setRequired(t)
	t.Setenv("LIST_LIMIT", "zero")

	_, err := Load(logger.NewNopLogger())
	assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
}

func TestLoadRejectsBadRemoteTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("REMOTE_TIMEOUT", "soon")

	_, err := Load(logger.NewNopLogger())
	require.Error(t, err)
}

func TestLoadRejectsBadKafkaPartitions(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_PARTITIONS", "many")

	_, err := Load(logger.NewNopLogger())
	assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
}

func TestLoadRejectsNonPositivePollInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_OUTBOX_POLL_INTERVAL", "0s")

	_, err := Load(logger.NewNopLogger())
	assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)
}
