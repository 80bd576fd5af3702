package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"meal-calendar/internal/calendar"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"

	"gopkg.in/yaml.v3"
)

func writeWeek(w io.Writer, format string, week planner.Week) error {
	switch format {
	case "text", "":
		return printWeek(w, week)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(week)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(week); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: want text, json or yaml", format)
	}
}

func printWeek(w io.Writer, week planner.Week) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "DAY")
	for _, meal := range calendar.Meals {
		fmt.Fprintf(tw, "\t%s", meal.Title())
	}
	fmt.Fprintln(tw)

	for _, dp := range week {
		fmt.Fprint(tw, dp.Day.Title())
		for _, meal := range calendar.Meals {
			label := "-"
			if r := dp.Meals[meal]; r != nil {
				label = r.Label
			}
			fmt.Fprintf(tw, "\t%s", label)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func printRecipes(w io.Writer, recipes []recipe.Recipe) error {
	if len(recipes) == 0 {
		_, err := fmt.Fprintln(w, "No recipes found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tINGREDIENTS")
	for _, r := range recipes {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.ID, r.Label, len(r.IngredientLines))
	}
	return tw.Flush()
}
