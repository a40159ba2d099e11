package fixed

// Mean returns the arithmetic mean of points, zero when there are none.
func Mean(points []Point) Point {
	if len(points) == 0 {
		return Zero
	}
	return Sum(points...).DivInt(len(points))
}

// Variance returns the spread of points around mean. A sample variance divides
// by n-1 and needs at least two points.
func Variance(points []Point, mean Point, sample bool) Point {
	n := len(points)
	if sample {
		n--
	}
	if n <= 0 || len(points) < 2 {
		return Zero
	}

	sum := Zero
	for _, point := range points {
		diff := point.Sub(mean)
		sum = sum.Add(diff.Mul(diff))
	}
	return sum.DivInt(n)
}

func StdDev(points []Point, mean Point) Point {
	return Variance(points, mean, false).Sqrt()
}

func SampleStdDev(points []Point, mean Point) Point {
	return Variance(points, mean, true).Sqrt()
}
