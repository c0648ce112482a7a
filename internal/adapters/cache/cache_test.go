package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/savra/internal/adapters/cache"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Keys are namespaced by snapshot and view", t, func() {
		So(cache.Key("abc", "overall"), ShouldEqual, "savra:report:abc:overall")
	})
}

func TestMemory(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory cache with a fake clock", t, func() {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		m := cache.NewMemory(
			cache.WithTTL(time.Minute),
			cache.WithMaxEntries(2),
			cache.WithClock(func() time.Time { return now }),
		)

		Convey("When a value is stored", func() {
			So(m.Set(ctx, "a", []byte("1")), ShouldBeNil)

			Convey("Then it is returned until it expires", func() {
				v, ok, err := m.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(string(v), ShouldEqual, "1")

				now = now.Add(time.Minute)
				_, ok, err = m.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(m.Len(), ShouldEqual, 0)
			})
		})

		Convey("When more values than capacity are stored", func() {
			_ = m.Set(ctx, "a", []byte("1"))
			_ = m.Set(ctx, "b", []byte("2"))
			_ = m.Set(ctx, "c", []byte("3"))

			Convey("Then the oldest is evicted", func() {
				_, ok, _ := m.Get(ctx, "a")
				So(ok, ShouldBeFalse)
				_, ok, _ = m.Get(ctx, "c")
				So(ok, ShouldBeTrue)
				So(m.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the cache is closed", func() {
			So(m.Close(), ShouldBeNil)

			Convey("Then operations fail", func() {
				_, _, err := m.Get(ctx, "a")
				So(errors.Is(err, cache.ErrClosed), ShouldBeTrue)
				So(errors.Is(m.Set(ctx, "a", nil), cache.ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("SAVRA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SAVRA_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	Convey("Given a redis cache", t, func() {
		r, err := cache.NewRedis(ctx, cache.RedisConfig{Addr: addr, TTL: time.Minute})
		So(err, ShouldBeNil)
		defer r.Close()

		key := cache.Key(time.Now().Format(time.RFC3339Nano), "overall")

		Convey("Then a miss is not an error and a hit round-trips", func() {
			_, ok, err := r.Get(ctx, key)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			So(r.Set(ctx, key, []byte(`{"ok":true}`)), ShouldBeNil)
			v, ok, err := r.Get(ctx, key)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(string(v), ShouldEqual, `{"ok":true}`)
		})
	})
}
