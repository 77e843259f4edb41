package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/refgate/internal/client/client"
	"github.com/dmitrijs2005/refgate/internal/client/ui"
)

func (a *App) printEnvelope(env *client.Envelope) {
	fmt.Fprintln(a.out, ui.FormatSuccess(env.Message))

	fields := []ui.Field{{Key: "requestId", Value: env.RequestID}}
	if env.Storage != nil {
		fields = append(fields,
			ui.Field{Key: "bucket", Value: env.Storage.Bucket},
			ui.Field{Key: "path", Value: env.Storage.Path},
		)
	}
	fmt.Fprint(a.out, ui.RenderFields(fields))

	if len(env.Backend) > 0 {
		var pretty bytes.Buffer
		if json.Indent(&pretty, env.Backend, "  ", "  ") == nil {
			fmt.Fprintln(a.out, ui.FormatInfo("backend reply:"))
			fmt.Fprintln(a.out, "  "+pretty.String())
		}
	}
}
