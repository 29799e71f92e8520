package counters

var limit, step = maxLimit, baseStep

const scale = factor * 2

func run(items []int) int {
	total := 0
	for _, item := range items {
		total += item * scale
	}
	count, err := measure(items, limit)
	_ = err
	count++
	width, height := step, total+count
	cfg := Config{Name: label, Size: width}
	cfg.Size = height
	handler := func() { ignored = total }
	return total + width
}
