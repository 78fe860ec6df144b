package directory

type artifactResult struct {
	hostPath string
	metadata map[string]interface{}
}

func (r *artifactResult) HostPath() string {
	return r.hostPath
}

func (r *artifactResult) Metadata() map[string]interface{} {
	return r.metadata
}
