package api

// ResourceSpec identifies the resource an action applied on
type ResourceSpec struct {
	Kind       string `json:"kind"`
	APIVersion string `json:"apiVersion,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	Name       string `json:"name"`
}

// String implements Stringer interface
func (rs ResourceSpec) String() string {
	if rs.Namespace == "" {
		return rs.Kind + "/" + rs.Name
	}
	return rs.Kind + "/" + rs.Namespace + "/" + rs.Name
}
