package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/vigilops/vigil/cache"
)

func ExampleNewMemoizer() {
	calls := 0
	m, err := cache.NewMemoizer(func(ctx context.Context, city string) (string, error) {
		calls++
		return "sunny in " + city, nil
	}, cache.MemoizerConfig[string]{
		Name: "forecast",
		TTL:  time.Minute,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	ctx := context.Background()
	first, _ := m.Do(ctx, "oslo")
	second, _ := m.Do(ctx, "oslo")

	fmt.Println(first)
	fmt.Println(second)
	fmt.Println("calls:", calls)
	// Output:
	// sunny in oslo
	// sunny in oslo
	// calls: 1
}

func ExampleStore_GetOrLoad() {
	s := cache.NewStore[int](cache.StoreConfig{DefaultTTL: time.Minute})

	v, err := s.GetOrLoad(context.Background(), "answer", func(ctx context.Context) (int, error) {
		return 42, nil
	}, 0)

	fmt.Println(v, err)
	// Output:
	// 42 <nil>
}
