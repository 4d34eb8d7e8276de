package capture

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
)

// portalStream captures frames through the xdg-desktop-portal Screenshot
// interface on the session bus. The portal shows the interactive
// permission/source prompt on the first frame request.
type portalStream struct {
	conn *dbus.Conn
}

// OpenPortalStream connects to the session bus and returns a stream backed
// by the desktop portal.
func OpenPortalStream(ctx context.Context) (FrameStream, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("dbus connect: %w", err)
	}
	return &portalStream{conn: conn}, nil
}

// Frame requests one screenshot and decodes the file the portal hands back.
func (s *portalStream) Frame(ctx context.Context) (image.Image, error) {
	obj := s.conn.Object("org.freedesktop.portal.Desktop", "/org/freedesktop/portal/desktop")
	opts := map[string]dbus.Variant{
		"interactive": dbus.MakeVariant(true),
	}

	var handle dbus.ObjectPath
	call := obj.Call("org.freedesktop.portal.Screenshot.Screenshot", 0, "", opts)
	if call.Err != nil {
		return nil, call.Err
	}
	if err := call.Store(&handle); err != nil {
		return nil, err
	}

	sigc := make(chan *dbus.Signal, 1)
	s.conn.Signal(sigc)
	defer s.conn.RemoveSignal(sigc)

	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.Request',member='Response',path='%s'", handle)
	if err := s.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, err
	}
	defer s.conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-sigc:
			if !ok {
				return nil, fmt.Errorf("capture connection closed")
			}
			if sig.Path != handle || sig.Name != "org.freedesktop.portal.Request.Response" {
				continue
			}
			if len(sig.Body) < 2 {
				return nil, fmt.Errorf("malformed portal response")
			}
			if code, ok := sig.Body[0].(uint32); ok && code != 0 {
				return nil, fmt.Errorf("screen capture denied (response %d)", code)
			}
			res, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				return nil, fmt.Errorf("malformed portal response")
			}
			uriVar, ok := res["uri"]
			if !ok {
				return nil, fmt.Errorf("portal response missing uri")
			}
			uri, _ := uriVar.Value().(string)
			return decodePortalFile(strings.TrimPrefix(uri, "file://"))
		}
	}
}

func decodePortalFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	// The portal writes its one-shot screenshot to disk; remove it once
	// decoded so captures do not pile up.
	defer os.Remove(path)
	return png.Decode(f)
}

// Close releases the bus connection.
func (s *portalStream) Close() error {
	return s.conn.Close()
}
