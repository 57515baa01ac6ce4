package moderation

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/iamwavecut/groupguard/internal/policy/permissions"
)

const DefaultAdminCacheSize = 10000

type adminKey struct {
	chatID int64
	userID int64
}

// AdminStatusCache memoizes whether a user is an administrator or the creator of a chat.
// Entries are never refreshed: promotions and demotions after the first lookup are not
// observed until the entry is evicted or the process restarts. Failed lookups are cached
// as false as well, except interrupted ones.
type AdminStatusCache struct {
	members MemberDirectory
	entries *lru.Cache[adminKey, bool]
	group   singleflight.Group
	lookups atomic.Int64
	hits    atomic.Int64
}

func NewAdminStatusCache(members MemberDirectory, size int) *AdminStatusCache {
	if size <= 0 {
		size = DefaultAdminCacheSize
	}
	entries, err := lru.New[adminKey, bool](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &AdminStatusCache{
		members: members,
		entries: entries,
	}
}

func (c *AdminStatusCache) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	key := adminKey{chatID: chatID, userID: userID}
	if isAdmin, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return isAdmin
	}

	flight := strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
	v, _, _ := c.group.Do(flight, func() (any, error) {
		if isAdmin, ok := c.entries.Get(key); ok {
			return isAdmin, nil
		}
		c.lookups.Add(1)
		// the lookup outlives the first caller; every waiter gets its answer
		status, err := c.members.MemberStatus(context.WithoutCancel(ctx), chatID, userID)
		if err != nil {
			log.WithFields(log.Fields{
				"object":  "AdminStatusCache",
				"chat_id": chatID,
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("member status lookup failed")
		}
		isAdmin := err == nil && permissions.IsAdminStatus(status)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		c.entries.Add(key, isAdmin)
		return isAdmin, nil
	})
	return v.(bool)
}

// Lookups is the number of remote member status calls issued so far.
func (c *AdminStatusCache) Lookups() int64 {
	return c.lookups.Load()
}

// Hits is the number of answers served from memory.
func (c *AdminStatusCache) Hits() int64 {
	return c.hits.Load()
}

func (c *AdminStatusCache) Len() int {
	return c.entries.Len()
}
