package tenant

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	tenantCalls  int
	channelCalls int
	tenant       *Tenant
	channel      *Channel
}

func (d *countingDirectory) ChannelByIdentifier(ctx context.Context, channelType, identifier string) (*Channel, error) {
	d.channelCalls++
	if d.channel == nil {
		return nil, ErrNotFound
	}
	return d.channel, nil
}

func (d *countingDirectory) ChannelByID(ctx context.Context, id string) (*Channel, error) {
	d.channelCalls++
	if d.channel == nil || d.channel.ID != id {
		return nil, ErrNotFound
	}
	return d.channel, nil
}

func (d *countingDirectory) Tenant(ctx context.Context, id string) (*Tenant, error) {
	d.tenantCalls++
	if d.tenant == nil {
		return nil, ErrNotFound
	}
	return d.tenant, nil
}

func TestCachedStoreServesRepeatLookupsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backing := &countingDirectory{
		tenant:  &Tenant{ID: "tenant-1", Name: "Glow", Services: []string{"Facial"}},
		channel: &Channel{ID: "ch-1", TenantID: "tenant-1", Type: ChannelSMS, Identifier: "+15550001111", Active: true},
	}
	store := NewCachedStore(backing, client, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tn, err := store.Tenant(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Equal(t, "Glow", tn.Name)

		ch, err := store.ChannelByIdentifier(ctx, ChannelSMS, "+15550001111")
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", ch.TenantID)
	}

	assert.Equal(t, 1, backing.tenantCalls)
	assert.Equal(t, 1, backing.channelCalls)
	assert.True(t, mr.Exists("tenant:tenant-1"))
	assert.True(t, mr.Exists("channel:sms:+15550001111"))

	ttl := mr.TTL("tenant:tenant-1")
	assert.Equal(t, time.Minute, ttl)
}

func TestCachedStoreDoesNotCacheMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backing := &countingDirectory{}
	store := NewCachedStore(backing, client, time.Minute, nil)

	_, err := store.Tenant(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Tenant(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, backing.tenantCalls)
	assert.False(t, mr.Exists("tenant:missing"))
}

func TestCachedStoreFallsThroughWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	backing := &countingDirectory{tenant: &Tenant{ID: "tenant-1", Name: "Glow"}}
	store := NewCachedStore(backing, client, time.Minute, nil)

	tn, err := store.Tenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "Glow", tn.Name)
}

func TestCachedStoreInvalidateTenant(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backing := &countingDirectory{tenant: &Tenant{ID: "tenant-1", Name: "Glow"}}
	store := NewCachedStore(backing, client, time.Minute, nil)
	ctx := context.Background()

	_, err := store.Tenant(ctx, "tenant-1")
	require.NoError(t, err)
	require.NoError(t, store.InvalidateTenant(ctx, "tenant-1"))
	_, err = store.Tenant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.tenantCalls)
}

func TestCachedStoreWithoutRedis(t *testing.T) {
	backing := &countingDirectory{tenant: &Tenant{ID: "tenant-1"}}
	store := NewCachedStore(backing, nil, 0, nil)
	_, err := store.Tenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	_, err = store.Tenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.tenantCalls)
	assert.NoError(t, store.InvalidateTenant(context.Background(), "tenant-1"))
}
