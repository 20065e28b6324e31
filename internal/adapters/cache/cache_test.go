package cache

import (
	"context"
	"testing"
	"time"

	"github.com/okian/swish/internal/domain/training"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory cache with a TTL", t, func() {
		now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		m := NewMemory(time.Minute)
		m.now = func() time.Time { return now }

		Convey("When an entry is stored", func() {
			So(m.Set(ctx, "k", training.CachedCapacity{Capacity: 187, Score: 0.61}), ShouldBeNil)

			Convey("Then it is returned before expiry", func() {
				v, ok, err := m.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v, ShouldResemble, training.CachedCapacity{Capacity: 187, Score: 0.61})
			})

			Convey("Then it is gone after expiry", func() {
				now = now.Add(time.Minute)
				_, ok, err := m.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				So(m.Len(), ShouldEqual, 0)
			})

			Convey("Then an expired read does not drop a concurrent refresh", func() {
				now = now.Add(time.Minute)
				refresh := true
				m.now = func() time.Time {
					if refresh {
						refresh = false
						So(m.Set(ctx, "k", training.CachedCapacity{Capacity: 201, Score: 0.66}), ShouldBeNil)
					}
					return now
				}

				v, ok, err := m.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(v.Capacity, ShouldEqual, 201)
				So(m.Len(), ShouldEqual, 1)

				v, ok, _ = m.Get(ctx, "k")
				So(ok, ShouldBeTrue)
				So(v.Capacity, ShouldEqual, 201)
			})
		})

		Convey("Then unknown keys miss", func() {
			_, ok, err := m.Get(ctx, "missing")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a cache without TTL", t, func() {
		m := NewMemory(0)
		So(m.Set(ctx, "k", training.CachedCapacity{Capacity: 50}), ShouldBeNil)

		Convey("Then entries never expire", func() {
			m.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
			_, ok, _ := m.Get(ctx, "k")
			So(ok, ShouldBeTrue)
		})
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	Convey("Given no cache address", t, func() {
		s, err := New(ctx, "  ", time.Hour)

		Convey("Then an in-memory cache is used", func() {
			So(err, ShouldBeNil)
			_, ok := s.(*Memory)
			So(ok, ShouldBeTrue)
			So(s.Close(), ShouldBeNil)
		})
	})

	Convey("Given an unreachable redis address", t, func() {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := New(cctx, "127.0.0.1:1", time.Hour)

		Convey("Then construction fails on ping", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "ping redis")
		})
	})

	Convey("Given a malformed redis url", t, func() {
		_, err := New(ctx, "redis://localhost:6379/notanumber", time.Hour)

		Convey("Then parsing fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a redis URL", t, func() {
		opts, err := redisOptions("redis://user:pw@cache.internal:6380/2")

		Convey("Then its parts are parsed", func() {
			So(err, ShouldBeNil)
			So(opts.Addr, ShouldEqual, "cache.internal:6380")
			So(opts.DB, ShouldEqual, 2)
		})
	})
}
