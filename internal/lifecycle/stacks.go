package lifecycle

import (
	"fmt"
	"net/url"
	"strings"
)

// UnresolvableStackError is returned when a stack has no registered root
// filesystem, lifecycle bundle or droplet destination. It is a
// configuration error and is never retried.
type UnresolvableStackError struct {
	Stack  string
	Reason string
}

func (e *UnresolvableStackError) Error() string {
	return fmt.Sprintf("unresolvable stack %q: %s", e.Stack, e.Reason)
}

// Stack maps a stack name to its root filesystem images.
type Stack struct {
	Name             string
	BuildRootFSImage string
	RunRootFSImage   string
}

// BuildRootFS is the preloaded rootfs reference used for staging.
func (s Stack) BuildRootFS() string { return "preloaded:" + s.BuildRootFSImage }

// RunRootFS is the preloaded rootfs reference used for tasks and processes.
func (s Stack) RunRootFS() string { return "preloaded:" + s.RunRootFSImage }

// Stacks is the set of stacks known to the deployment.
type Stacks struct {
	byName      map[string]Stack
	defaultName string
}

// NewStacks indexes stacks by name. Image names default to the stack name.
func NewStacks(stacks []Stack, defaultName string) *Stacks {
	s := &Stacks{byName: make(map[string]Stack, len(stacks)), defaultName: defaultName}
	for _, st := range stacks {
		if st.BuildRootFSImage == "" {
			st.BuildRootFSImage = st.Name
		}
		if st.RunRootFSImage == "" {
			st.RunRootFSImage = st.Name
		}
		s.byName[st.Name] = st
	}
	return s
}

// Lookup returns the named stack, or the default stack when name is empty.
func (s *Stacks) Lookup(name string) (Stack, error) {
	if s == nil {
		return Stack{}, &UnresolvableStackError{Stack: name, Reason: "no stacks configured"}
	}
	if name == "" {
		name = s.defaultName
	}
	st, ok := s.byName[name]
	if !ok {
		return Stack{}, &UnresolvableStackError{Stack: name, Reason: "stack not found"}
	}
	return st, nil
}

// Default returns the default stack name.
func (s *Stacks) Default() string {
	if s == nil {
		return ""
	}
	return s.defaultName
}

// BundleKey is the lifecycle_bundles key for a lifecycle kind and stack.
func BundleKey(kind Kind, stack string) string {
	return string(kind) + "/" + stack
}

// BundleURI returns where a container fetches a lifecycle bundle. Bundles
// with a scheme are used as-is; bare paths are served by the file server
// under /v1/static.
func BundleURI(bundle, fileServerURL string) (string, error) {
	u, err := url.Parse(bundle)
	if err != nil {
		return "", fmt.Errorf("parse lifecycle bundle %q: %w", bundle, err)
	}
	if u.Scheme != "" {
		return bundle, nil
	}
	base, err := url.Parse(fileServerURL)
	if err != nil {
		return "", fmt.Errorf("parse file server url: %w", err)
	}
	base.Path = "/v1/static/" + strings.TrimPrefix(bundle, "/")
	return base.String(), nil
}

// LifecycleBundle resolves the bundle URI for kind on stack.
func (c Config) LifecycleBundle(kind Kind, stack string) (string, error) {
	bundle, ok := c.LifecycleBundles[BundleKey(kind, stack)]
	if !ok || bundle == "" {
		return "", &UnresolvableStackError{
			Stack:  stack,
			Reason: fmt.Sprintf("no compiler defined for %s lifecycle", kind),
		}
	}
	return BundleURI(bundle, c.FileServerURL)
}

// DropletDestination returns where a declaratively delivered droplet is
// extracted for stack.
func (c Config) DropletDestination(stack string) (string, error) {
	dest, ok := c.DropletDestinations[stack]
	if !ok || dest == "" {
		return "", &UnresolvableStackError{Stack: stack, Reason: "no droplet destination defined"}
	}
	return dest, nil
}

// UploadURI builds a cc-uploader URL such as
// <cc_uploader_url>/v1/droplet/<guid>?cc-droplet-upload-uri=...&timeout=...
func (c Config) UploadURI(resource, guid, param, target string) (string, error) {
	u, err := url.Parse(c.CCUploaderURL)
	if err != nil {
		return "", fmt.Errorf("parse cc uploader url: %w", err)
	}
	u.Path = fmt.Sprintf("/v1/%s/%s", resource, guid)
	q := url.Values{}
	q.Set(param, target)
	q.Set("timeout", fmt.Sprintf("%d", int64(c.StagingTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
