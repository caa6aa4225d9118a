package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/km-arc/go-inject/framework/container"
)

// ListCommand prints the container's bindings with their kind and whether
// they have been built yet. --filter=prefix narrows the listing.
type ListCommand struct{}

func (ListCommand) Use() string   { return "di:list" }
func (ListCommand) Short() string { return "List container bindings" }

func (ListCommand) Action() *container.Callable {
	return container.Func(list,
		container.Param("c"),
		container.Param("output"),
		container.Param("filter", container.Default("")),
	)
}

func list(c *container.Container, out io.Writer, filter string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tRESOLVED")
	for _, id := range c.Bindings() {
		if !strings.HasPrefix(id, filter) {
			continue
		}
		kind, _ := c.KindOf(id)
		fmt.Fprintf(w, "%s\t%s\t%t\n", id, kind, c.Resolved(id))
	}
	return w.Flush()
}
