package apihelpers

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// WriteRoutesToFile dumps the mounted routes sorted by path, one per
// line. Used in debug mode to diff the exposed API surface between
// builds.
func WriteRoutesToFile(router *gin.Engine, filename string) {
	routes := router.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})

	var sb strings.Builder
	for _, route := range routes {
		fmt.Fprintf(&sb, "%s\t%s\n", route.Method, route.Path)
	}

	if err := os.WriteFile(filename, []byte(sb.String()), 0644); err != nil {
		slog.Error("failed to write routes file", slog.String("filename", filename), slog.String("error", err.Error()))
	}
}
