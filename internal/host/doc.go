// Package host implements the small unit language that redefine-mcp reloads
// code into.
//
// The language has just enough surface to exercise live redefinition: named
// units with isolated namespaces, struct types that cannot be redefined in
// place, constants, imports and export lists.
//
//	module geom
//	    export Point, origin
//	    struct Point
//	        x::Float64
//	        y::Float64
//	    end
//	    origin = Point(0, 0)
//	end
//
// # Parsing and rendering
//
// Parse turns source into a Block. Render is the lossy serializer that turns a
// Block back into a quoted snippet; it emits import, using and export
// statements as interpolation artifacts such as $(:export, :Point, :origin),
// which the respec package repairs.
//
// # Interpreter
//
// Interpreter holds the shared Main namespace and the registry of loaded
// units. It satisfies the reloader's Loader, Executor and Publisher
// interfaces:
//
//	ip := host.New()
//	h, err := ip.LoadUnit(ctx, source, "geom")
//	names, err := ip.ListExports(ctx, h) // [Point eval origin]
//	err = ip.Publish(ctx, manifest)
//
// Struct definitions are constants. Defining a struct again with a different
// shape in the same namespace fails with "invalid redefinition of constant";
// loading a unit again replaces the whole namespace instead, so the new
// definition gets a new type generation. Instances built from an older
// generation are rejected where the new type is expected.
package host
