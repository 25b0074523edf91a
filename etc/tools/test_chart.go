package main

import (
	"fmt"
	"os"
	"time"

	"price-tracker/internal/features/charts"
	"price-tracker/internal/series"
)

// go run etc/tools/test_chart.go [weekly|daily]
// Renders a demo series to etc/charts/price_chart.png without touching stored data.
func main() {
	name := "weekly"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	interval, err := series.ParseInterval(name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generating test chart...")

	s := series.GenerateDemo(time.Now(), interval.Periods(), interval, nil)
	renderer := &charts.Renderer{
		Path:      "etc/charts/price_chart.png",
		Width:     2400,
		Height:    1200,
		Title:     "Weekly Average Egg & Gas Prices",
		FontPaths: charts.DefaultFontPaths,
	}

	chart, err := renderer.Render(s)
	if err != nil {
		fmt.Printf("Error generating chart: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chart generated successfully: %s (%d points)\n", chart.Path, chart.Points)
	fmt.Println("Open the file to see the result!")
}
